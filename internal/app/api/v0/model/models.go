package model

type Error struct {
	Code    int    `json:"Code"`
	Message string `json:"Message"`
}
