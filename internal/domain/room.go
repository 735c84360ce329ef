package domain

// RoomID identifies a broadcast domain. The room catalog asserts
// existence; membership here is observed against the id only.
type RoomID string
