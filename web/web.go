// Package web embeds the browser client build: the s2eclient WebAssembly
// module and the Go runtime shim that loads it.
package web

import "embed"

//go:generate sh -c "GOOS=js GOARCH=wasm go build -o dist/s2eclient.wasm ../cmd/s2eclient && cp \"$(go env GOROOT)/lib/wasm/wasm_exec.js\" dist/"

//go:embed all:dist
var DistFS embed.FS
