/*
Package lpsolve is an lp backend running models through lp_solve 5.5.

The bindings need cgo and the lp_solve headers and library, so they are only
compiled with the lpsolve build tag:

	go build -tags lpsolve ./...

Importing the package registers the backend as "lpsolve". Without the tag
the package is empty and nothing is registered.
*/
package lpsolve
