package models

// ModelRegistry lists the models created by --auto-migrate on the gorm-backed stores.
var ModelRegistry = []any{
	&WaitlistEntry{},
}
