// Package web embeds the HTML templates the handlers render
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

var errorMessages = map[string]string{
	"password_mismatch":   "As senhas não coincidem.",
	"user_exists":         "Já existe uma conta com esse e-mail ou nome de usuário.",
	"email_exists":        "Já existe uma conta com esse e-mail.",
	"username_exists":     "Esse nome de usuário já está em uso.",
	"missing_fields":      "Preencha todos os campos.",
	"invalid_email":       "E-mail inválido.",
	"invalid_username":    "Nome de usuário inválido. Use de 3 a 32 letras (acentos permitidos), números, '.', '_' ou '-'.",
	"invalid_password":    "A senha deve ter entre 8 e 72 caracteres.",
	"invalid_token":       "Link de verificação inválido ou já utilizado.",
	"invalid_credentials": "E-mail ou senha incorretos.",
	"not_verified":        "Confirme seu e-mail antes de entrar.",
	"user_not_found":      "Sua conta não foi encontrada. Entre novamente.",
	"captcha_failed":      "Não foi possível validar o captcha.",
}

// ErrorMessage turns a redirect error code into text for the user
func ErrorMessage(code string) string {
	if m, ok := errorMessages[code]; ok {
		return m
	}

	return "Algo deu errado."
}

// Templates parses every embedded template. It panics on a broken template
// since that can only be a build mistake.
func Templates() *template.Template {
	funcs := template.FuncMap{
		"errorMessage": ErrorMessage,
	}

	return template.Must(template.New("").Funcs(funcs).ParseFS(files, "templates/*.html"))
}
