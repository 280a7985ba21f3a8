package h

import gh "maragu.dev/gomponents/html"

func Type(v string) H {
	return gh.Type(v)
}

func Src(v string) H {
	return gh.Src(v)
}

func ID(v string) H {
	return gh.ID(v)
}

func Name(v string) H {
	return gh.Name(v)
}

func Placeholder(v string) H {
	return gh.Placeholder(v)
}

func Class(v string) H {
	return gh.Class(v)
}

// Data attributes automatically have their name prefixed with "data-".
func Data(name, v string) H {
	return gh.Data(name, v)
}

func For(v string) H {
	return gh.For(v)
}

// TestID sets data-testid, the hook page tests use to find elements.
func TestID(v string) H {
	return gh.Data("testid", v)
}

func Aria(name, v string) H {
	return gh.Aria(name, v)
}

func AriaLive(v string) H {
	return gh.Aria("live", v)
}
