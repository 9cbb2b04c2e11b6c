package homeassistant

import (
	"encoding/json"
	"fmt"
)

// Message types exchanged over the Home Assistant WebSocket API.
const (
	typeAuthRequired = "auth_required"
	typeAuth         = "auth"
	typeAuthOK       = "auth_ok"
	typeAuthInvalid  = "auth_invalid"
	typeResult       = "result"
	typePong         = "pong"
	typeCallService  = "call_service"
	typeDeviceList   = "config/device_registry/list"
	typePing         = "ping"
)

// serverMessage is the union of every message the server sends us.
type serverMessage struct {
	ID        int64           `json:"id,omitempty"`
	Type      string          `json:"type"`
	HAVersion string          `json:"ha_version,omitempty"`
	Message   string          `json:"message,omitempty"`
	Success   bool            `json:"success,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *CommandError   `json:"error,omitempty"`
}

type authMessage struct {
	Type        string `json:"type"`
	AccessToken string `json:"access_token"`
}

// CommandError is the error payload of an unsuccessful result message.
type CommandError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *CommandError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// Notification is the service data of a notify.mobile_app_* call.
type Notification struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// clickData opens the add-on ingress page when the notification is tapped.
type clickData struct {
	URL         string `json:"url"`
	ClickAction string `json:"clickAction"`
}

// webviewData asks the companion app to open a page.
type webviewData struct {
	Command string `json:"command"`
}

// Device is an entry of the Home Assistant device registry.
type Device struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	NameByUser  *string    `json:"name_by_user"`
	Identifiers [][]string `json:"identifiers"`
}

// IsMobileApp reports whether the device was registered by the companion app.
func (d Device) IsMobileApp() bool {
	for _, ident := range d.Identifiers {
		for _, s := range ident {
			if s == "mobile_app" {
				return true
			}
		}
	}
	return false
}
