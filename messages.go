package gxbuzzer

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//nolint:errcheck
func init() {
	// --- English (default) ---
	message.SetString(language.AmericanEnglish, "msg.closing", "Closing buzzer console on %s")
	message.SetString(language.AmericanEnglish, "msg.closed", "Buzzer console closed on %s")
	message.SetString(language.AmericanEnglish, "msg.connection_failed", "Connection failed: %v")
	message.SetString(language.AmericanEnglish, "msg.firmware", "Console firmware %s")
	message.SetString(language.AmericanEnglish, "msg.dispatch_mode", "Event dispatch mode %s")
	message.SetString(language.AmericanEnglish, "msg.event", "Event: %s")

	// --- German (de) ---
	message.SetString(language.German, "msg.closing", "Buzzer-Konsole an %s wird geschlossen")
	message.SetString(language.German, "msg.closed", "Buzzer-Konsole an %s wurde geschlossen")
	message.SetString(language.German, "msg.connection_failed", "Verbindung fehlgeschlagen: %v")
	message.SetString(language.German, "msg.firmware", "Konsolen-Firmware %s")
	message.SetString(language.German, "msg.dispatch_mode", "Ereigniszustellung %s")
	message.SetString(language.German, "msg.event", "Ereignis: %s")

	// --- Finnish (fi) ---
	message.SetString(language.Finnish, "msg.closing", "Suljetaan summerikonsoli portissa %s")
	message.SetString(language.Finnish, "msg.closed", "Summerikonsoli suljettu portissa %s")
	message.SetString(language.Finnish, "msg.connection_failed", "Yhteyden muodostus epäonnistui: %v")
	message.SetString(language.Finnish, "msg.firmware", "Konsolin laiteohjelmisto %s")
	message.SetString(language.Finnish, "msg.dispatch_mode", "Tapahtumien välitystapa %s")
	message.SetString(language.Finnish, "msg.event", "Tapahtuma: %s")

	// --- Swedish (sv) ---
	message.SetString(language.Swedish, "msg.closing", "Stänger summerkonsol på %s")
	message.SetString(language.Swedish, "msg.closed", "Summerkonsol stängd på %s")
	message.SetString(language.Swedish, "msg.connection_failed", "Anslutningen misslyckades: %v")
	message.SetString(language.Swedish, "msg.firmware", "Konsolens firmware %s")
	message.SetString(language.Swedish, "msg.dispatch_mode", "Händelseleverans %s")
	message.SetString(language.Swedish, "msg.event", "Händelse: %s")
}

// Localize messages for the specified language.
// No errors is returned if language is not supported.
func (g *GXBuzzer) Localize(language language.Tag) {
	g.mu.Lock()
	g.p = message.NewPrinter(language)
	g.mu.Unlock()
}

func (g *GXBuzzer) printer() *message.Printer {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.p
}
