// Package docs регистрирует описание API для swagger UI.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/teams": {"post": {"tags": ["teams"], "summary": "Создать команду", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}},
        "/teams/mine": {"get": {"tags": ["teams"], "summary": "Команды текущего пользователя", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/teams/search": {"get": {"tags": ["search"], "summary": "Поиск команд, в которые можно вступить", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/teams/sync": {"post": {"tags": ["teams"], "summary": "Выдать регистрации участникам оплаченных команд", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/teams/{teamID}": {
            "get": {"tags": ["teams"], "summary": "Команда с актуальным статусом оплаты", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "patch": {"tags": ["teams"], "summary": "Изменить имя или размер команды", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["teams"], "summary": "Распустить команду", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}
        },
        "/teams/{teamID}/members": {"post": {"tags": ["teams"], "summary": "Добавить участника напрямую", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}},
        "/teams/{teamID}/members/{userID}": {"delete": {"tags": ["teams"], "summary": "Исключить участника или выйти из команды", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/teams/{teamID}/invitations": {
            "get": {"tags": ["invitations"], "summary": "Ожидающие приглашения команды", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["invitations"], "summary": "Пригласить пользователя в команду", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}
        },
        "/teams/{teamID}/candidates": {"get": {"tags": ["search"], "summary": "Поиск пользователей для приглашения", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/teams/{teamID}/join-requests": {"post": {"tags": ["join-requests"], "summary": "Попроситься в команду", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}},
        "/teams/{teamID}/payments": {"post": {"tags": ["registrations"], "summary": "Начать оплату регистрации команды", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}},
        "/invitations/mine": {"get": {"tags": ["invitations"], "summary": "Ожидающие приглашения текущего пользователя", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/invitations/{invitationID}/accept": {"post": {"tags": ["invitations"], "summary": "Принять приглашение", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/invitations/{invitationID}/reject": {"post": {"tags": ["invitations"], "summary": "Отклонить приглашение", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/invitations/{invitationID}/cancel": {"post": {"tags": ["invitations"], "summary": "Отозвать приглашение", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/join-requests/mine": {"get": {"tags": ["join-requests"], "summary": "Заявки текущего пользователя", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/join-requests/incoming": {"get": {"tags": ["join-requests"], "summary": "Заявки в команды пользователя", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/join-requests/{requestID}/accept": {"post": {"tags": ["join-requests"], "summary": "Одобрить заявку", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/join-requests/{requestID}/reject": {"post": {"tags": ["join-requests"], "summary": "Отклонить заявку", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/join-requests/{requestID}/cancel": {"post": {"tags": ["join-requests"], "summary": "Отозвать свою заявку", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/registrations/mine": {"get": {"tags": ["registrations"], "summary": "Регистрации текущего пользователя", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/teams/stats": {"get": {"tags": ["admin"], "summary": "Статистика команд события", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}},
        "/admin/teams/report": {"post": {"tags": ["admin"], "summary": "Выгрузить CSV-отчет по командам", "security": [{"BearerAuth": []}], "responses": {"201": {"description": "Created"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Festival Teams API",
	Description:      "Формирование команд и сверка оплат регистраций.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
