package main

import "vision-webapi/internal/app"

func main() {
	app.Run()
}
