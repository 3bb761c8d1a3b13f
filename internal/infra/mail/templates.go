package mail

import (
	"fmt"
	"net/url"
	"strings"
)

func Verification(to, appURL, token string) Message {
	link := strings.TrimRight(appURL, "/") + "/verify?token=" + url.QueryEscape(token)
	return Message{
		To:      to,
		Subject: "Verify your Kaleidorium account",
		Body:    fmt.Sprintf("Welcome to Kaleidorium!\n\nClick the following link to verify your account:\n\n%s", link),
	}
}

func PasswordResetCode(to, code string, validMinutes int) Message {
	return Message{
		To:      to,
		Subject: "Your Kaleidorium password reset code",
		Body: fmt.Sprintf("Your password reset code is %s.\n\nIt expires in %d minutes. If you did not ask for it, ignore this email.",
			code, validMinutes),
	}
}

func ArtistInvitation(to, inviter, appURL, token, note string) Message {
	link := strings.TrimRight(appURL, "/") + "/signup?invite=" + url.QueryEscape(token)
	body := fmt.Sprintf("%s invited you to join Kaleidorium as an artist.\n\n", inviter)
	if note != "" {
		body += note + "\n\n"
	}
	body += "Create your account here:\n\n" + link
	return Message{
		To:      to,
		Subject: inviter + " invited you to Kaleidorium",
		Body:    body,
	}
}
