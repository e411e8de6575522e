package logging

const (
	// KeyError is the key used for errors.
	KeyError = `err`

	// KeyDal is the key used for the data access layer.
	KeyDal = `dal`

	// KeyGuild is the key used for guild ids.
	KeyGuild = `guild`

	// KeyChannel is the key used for channel ids.
	KeyChannel = `channel`

	// KeyUser is the key used for user ids.
	KeyUser = `user`

	// KeyHandler is the key used for handler names.
	KeyHandler = `handler`

	// KeyState is the key used for ticket states.
	KeyState = `state`
)
