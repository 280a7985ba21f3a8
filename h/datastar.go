package h

import "fmt"

// DataInit runs the datastar expression once the element is mounted.
func DataInit(format string, a ...any) H {
	return Data("init", fmt.Sprintf(format, a...))
}

// DataSignals seeds the page signals from a JSON object.
func DataSignals(json string) H {
	return Data("signals", json)
}
