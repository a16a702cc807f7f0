// cmd/main.go
package main

import (
	"manga-auth-api/app"
)

func main() {
	app.Run()
}
