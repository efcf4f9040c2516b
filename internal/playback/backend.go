package playback

// Backend is a playback engine for one class of origins.
//
// Load prepares ref paused and reports readiness through obs; it must return without waiting for the
// media. Destroy halts playback and releases the underlying resource, after which the backend accepts
// a new Load. Every method is called from the controller's loop goroutine.
type Backend interface {
	Load(ref string, obs Observer) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetVolume(v float64) error
	SetMuted(muted bool) error
	Destroy() error
}

// Observer receives the typed events of one backend activation.
//
// Implementations never block, so a backend may call them from any goroutine.
type Observer interface {
	Ready(duration float64)
	TimeUpdate(position float64)
	Ended()
	Error(err error)
}

var (
	_ Backend  = (*LocalBackend)(nil)
	_ Backend  = (*RemoteBackend)(nil)
	_ Observer = (*activation)(nil)
)
