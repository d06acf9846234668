// Package web holds the static pages served by the gate itself.
package web

import (
	"bytes"
	_ "embed"
)

//go:embed pages/login.html
var loginHTML []byte

//go:embed pages/app.html
var appHTML []byte

// LoginPage returns a copy of the embedded login page.
func LoginPage() []byte {
	return bytes.Clone(loginHTML)
}

// AppPage returns a copy of the embedded application page.
func AppPage() []byte {
	return bytes.Clone(appHTML)
}

