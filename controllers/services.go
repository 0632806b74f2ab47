package controllers

// Services is what the handlers call into. main installs one with Use
// before the router starts.
type Services struct {
	Submissions Submitter
	Configs     ConfigStore
	Requests    RequestReader
	Decisions   Decider
	Scanner     Scanner
	Prayers     PrayerReader
	PushTokens  TokenRegistrar
}

var app Services

func Use(s Services) {
	app = s
}
