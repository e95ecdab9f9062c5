package a

//gomacros:equal frobnicate(1) // want `GM100: unknown option "frobnicate" of macro equal`
type Point struct{ X int }

//gomacros:equal
type Tags struct {
	Items []string // want `GM120: field Items of type \[\]string cannot be compared with ==`
}

//gomacros:hash // want `GM001: unknown macro "hash"`
type Other struct{}

//gomacros:equal rename(Same // want `GM000: expected`
type Broken struct{}

//gomacros:equal
type Fine struct{ X int }
