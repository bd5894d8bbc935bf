package models

// All lists every persisted model in dependency order for migrations
func All() []interface{} {
	return []interface{}{
		&User{},
		&Skill{},
		&Follow{},
		&Post{},
		&PostMedia{},
		&Like{},
		&Comment{},
		&Notification{},
	}
}
