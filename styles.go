package main

import "crowdfund-tui/styles"

// -------------------- THEME (Lip Gloss) --------------------
// Styles come from the styles package

var (
	cMuted   = styles.CMuted
	cText    = styles.CText
	cAccent  = styles.CAccent
	cAccent2 = styles.CAccent2
	cWarn    = styles.CWarn
	cError   = styles.CError
	cBorder  = styles.CBorder

	appStyle   = styles.AppStyle
	panelStyle = styles.PanelStyle
)
