// Package cli is the mediagate command line client.
//
// It wires the upload widget to the HTTP issuer and media host and exposes
// it through two commands:
//
//	mediagate upload FILE [--value URL]   pick a file, as a click on the widget
//	mediagate watch DIR                   drop every file created in DIR
//
// Status is rendered on one rewritten line when stdout is a terminal and as
// plain log lines otherwise.
package cli
