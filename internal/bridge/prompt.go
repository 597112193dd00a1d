package bridge

import (
	"fmt"
	"time"
)

// GoodbyeKeyword ends the call when it appears in a transcribed assistant
// turn. The session instructions require the assistant to say it when the
// conversation is over.
const GoodbyeKeyword = "goodbye"

// GreetingInstruction is sent as the first conversation item so the
// assistant speaks before the caller does.
const GreetingInstruction = `Greet the caller with "Hello there! Thank you for calling. I am your virtual assistant, here to take your order or answer your questions. What can I do for you today?"`

const systemInstructions = `You are a phone assistant for a restaurant. Your job is to answer questions about the restaurant and to take pickup orders.

Collect the caller's name, the items they would like to order, and the pickup time. Only offer items that are on the menu. Confirm the full order back to the caller, including each item, the pickup time, and the total price, and ask if anything else is needed before finishing.

For pickup times given as a duration (for example "in 20 minutes"), compute the exact time from the current time and confirm it with the caller.

If the caller does not want to order, or once the order is confirmed, end the conversation politely. You must say "Goodbye" when ending the call.

Do not answer questions unrelated to the restaurant or its menu.`

// SessionInstructions builds the fixed system instructions sent in the
// realtime session update, stamped with the current local time so the
// assistant can resolve relative pickup times.
func SessionInstructions(now time.Time) string {
	return fmt.Sprintf("%s\nCurrent time: %s. Please keep your responses concise.", systemInstructions, now.Format("3:04 PM"))
}

// MenuPhrases biases turn transcription toward dish names that generic
// telephony models routinely miss.
var MenuPhrases = []string{
	"Margherita", "Diavola", "Capricciosa", "Norma", "Soppressata", "Calzone",
	"Quattro Formaggi", "Arancini", "Caprese", "Parmigiana", "Polpette",
	"Lasagna", "Gnocchi", "Tortellini", "Tiramisu", "Cannolo", "Panna Cotta",
	"Espresso", "San Pellegrino",
}
