package apptree

// Surface identifies the category of UI host a tree was extracted from.
type Surface string

const (
	SurfaceCanvasApp      Surface = "CanvasApp"
	SurfaceModelDrivenApp Surface = "ModelDrivenApp"
	SurfacePortalPage     Surface = "PortalPage"
	SurfaceDomSnapshot    Surface = "DomSnapshot"
)

// String returns the string representation of the surface.
func (s Surface) String() string {
	return string(s)
}

// IsValid returns true if the surface is a recognized value.
func (s Surface) IsValid() bool {
	switch s {
	case SurfaceCanvasApp, SurfaceModelDrivenApp, SurfacePortalPage, SurfaceDomSnapshot:
		return true
	default:
		return false
	}
}
