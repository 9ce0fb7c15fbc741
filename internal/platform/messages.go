package platform

const (
	statusPlaying = "Playing"
	statusStopped = "Stopped"
)

// MPRISPlayMsg is sent when MPRIS requests to play.
type MPRISPlayMsg struct{}

// MPRISPauseMsg is sent when MPRIS requests to pause. A live stream cannot
// pause, so the app treats it as stop.
type MPRISPauseMsg struct{}

// MPRISStopMsg is sent when MPRIS requests to stop.
type MPRISStopMsg struct{}

// MPRISPlayPauseMsg is sent when MPRIS requests to toggle play/pause.
type MPRISPlayPauseMsg struct{}

// MPRISQuitMsg is sent when MPRIS asks the player to exit.
type MPRISQuitMsg struct{}
