/*
Copyright © 2026 Huelock <dev@huelock.net>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
)

// Join failures are surfaced to the originating connection as a user-facing
// message and leave all state untouched. Unauthorized and out-of-round
// actions are dropped silently instead and never produce an error event.
var (
	errGameNotFound  = errors.New("game not found")
	errAlreadyJoined = errors.New("already joined")
	errNameTaken     = errors.New("name taken")
)

func userMessage(err error) string {
	switch {
	case errors.Is(err, errGameNotFound):
		return "Game not found"
	case errors.Is(err, errAlreadyJoined):
		return "You have already joined this game"
	case errors.Is(err, errNameTaken):
		return "This name is already taken. Please choose a different name."
	default:
		return "Something went wrong. Please try again."
	}
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
