package dedup

import "strconv"

// MessageKey identifies a chat message; message ids are unique per chat only.
func MessageKey(chatID int64, messageID int) string {
	return "msg:" + strconv.FormatInt(chatID, 10) + ":" + strconv.Itoa(messageID)
}

// CallbackKey identifies a button press.
func CallbackKey(callbackID string) string {
	return "cb:" + callbackID
}
