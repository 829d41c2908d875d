package config

// Page identifies a top-level view of the TUI
type Page int

const (
	PageHome Page = iota
	PageCampaign
	PageAccounts
	PageSettings
)
