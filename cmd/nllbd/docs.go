package main

// General API documentation for swaggo. Run `swag init -g cmd/nllbd/docs.go` to regenerate docs.
//
// @title           nllbd API
// @version         1.0
// @description     HTTP API for batch machine translation with NLLB-200 models.
//
// @contact.name   nllbd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
