package via

type patchType int

const (
	patchTypeElements patchType = iota
	patchTypeSignals
)

type patch struct {
	typ     patchType
	content string
}
