/*
Package glpk is an lp backend running models through the GNU Linear
Programming Kit's simplex method.

The bindings need cgo and libglpk, so they are only compiled with the glpk
build tag:

	go build -tags glpk ./...

Importing the package registers the backend as "glpk". Without the tag the
package is empty and nothing is registered.
*/
package glpk
