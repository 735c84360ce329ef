package app

import "fmt"

// Presence notices travel the same delivery path as messages but are
// intentionally never written to the message log.

func EnteredNotice(name string) string {
	return fmt.Sprintf("%s has entered the room.", name)
}

func LeftNotice(name string) string {
	return fmt.Sprintf("%s has left the room.", name)
}
