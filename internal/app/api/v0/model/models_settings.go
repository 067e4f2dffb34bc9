package model

type SettingsSection struct {
	Section string            `json:"Section"`
	Values  map[string]string `json:"Values"`
}

type SettingsUpdateRequest struct {
	Values map[string]string `json:"Values" validate:"required,min=1"`
}
