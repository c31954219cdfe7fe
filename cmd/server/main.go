package main

import "deeptech/internal/app"

// @title           Deep Tech Account API
// @version         1.0
// @description     Account lifecycle service: registration, email/OTP verification, password setup and login.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app.Run()
}
