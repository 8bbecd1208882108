package api

// Allow list of console commands the HTTP API will forward to the
// stimulator. Anything outside this list is rejected before it reaches the
// serial port.
var allowedCommands = []string{
	"??", // Query overall device information
	"?V", // Read firmware version
	"?N", // Read serial number
	"?S", // Read safety interlock state

	// Output format
	"FJ", // Switch console output to JSON lines
	"FT", // Switch console output to plain text

	// Event reporting
	"RP", // Enable pulse event reporting
	"Rp", // Disable pulse event reporting
	"RQ", // Enable capacitor charge reporting
	"Rq", // Disable capacitor charge reporting
	"RO", // Report coil orientation with each pulse
	"Ro", // Stop reporting coil orientation

	// Waveform selection
	"WM1", // Monophasic waveform
	"WB1", // Biphasic waveform

	// Capacitor charging
	"QT+1", // Enable charging of the top coil capacitor
	"QT+0", // Disable charging of the top coil capacitor
	"QB+1", // Enable charging of the bottom coil capacitor
	"QB+0", // Disable charging of the bottom coil capacitor
	"Q?",   // Query capacitor voltages

	// Pulse control
	"P?", // Query pulse settings
	"P1", // Deliver a single pulse at the configured intensity
	"P0", // Abort any queued pulses
}
