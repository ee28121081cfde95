package keyboard

import tele "gopkg.in/telebot.v4"

// ReplyButtons builds a one-column reply keyboard from plain labels.
func ReplyButtons(labels ...string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	rows := make([]tele.Row, 0, len(labels))
	for _, label := range labels {
		if label == "" {
			continue
		}
		rows = append(rows, markup.Row(markup.Text(label)))
	}
	markup.Reply(rows...)
	return markup
}

// RemoveKeyboard hides any active reply keyboard for the chat.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}
