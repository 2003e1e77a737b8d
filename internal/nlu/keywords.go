package nlu

import "github.com/saranya-muthuraj/ivrsim/internal/menu"

// rule maps a spoken substring to the keypad trigger it stands for.
// Rules are checked in declaration order and the first match wins.
type rule struct {
	phrase  string
	trigger string
}

// globalRules are recognized on every menu. "agent" and "speak" always
// dispatch against the main menu so the caller reaches a human from
// anywhere in the tree.
var globalRules = []rule{
	{"agent", "0"},
	{"speak", "0"},
}

// backRules apply on any menu except main.
var backRules = []rule{
	{"main menu", menu.TriggerBack},
	{"back", menu.TriggerBack},
}

var menuRules = map[menu.ID][]rule{
	menu.Main: {
		{"status", "1"},
		{"manage", "2"},
		{"cancel", "2"},
		{"change", "2"},
		{"baggage", "3"},
		{"bag", "3"},
		{"check in", "4"},
		{"boarding pass", "4"},
		{"booking", "5"},
		{"book", "5"},
		{"frequent", "6"},
		{"points", "6"},
		{"special", "7"},
		{"wheelchair", "7"},
		{"refund", "8"},
		{"receipt", "8"},
		{"other", "9"},
		{"pet", "9"},
	},
	menu.ManageBookingOptions: {
		{"change", "1"},
		{"cancel", "2"},
	},
	menu.Baggage: {
		{"lost", "1"},
		{"allowance", "2"},
	},
	menu.CheckInOptions: {
		{"check in", "1"},
		{"boarding pass", "2"},
	},
	menu.FrequentFlyerOptions: {
		{"check", "1"},
		{"points", "1"},
		{"redeem", "2"},
	},
	menu.SpecialAssistance: {
		{"wheelchair", "1"},
		{"other", "2"},
	},
	menu.Refunds: {
		{"status", "1"},
		{"receipt", "2"},
	},
	menu.OtherInquiries: {
		{"pet", "1"},
		{"group", "2"},
	},
	menu.BookGender: {
		{"female", "2"}, // before "male", which it contains
		{"male", "1"},
		{"other", "3"},
	},
	menu.BookConfirm: {
		{"confirm", "1"},
		{"yes", "1"},
		{"no", "2"},
		{"cancel", "2"},
	},
}
