package main

// formflow drives a multi-section form session from the terminal: it loads a
// form definition from the validation backend, lets the operator move
// between sections, and shows the validation indicators the section rail
// would render.

func main() {
	Execute()
}
