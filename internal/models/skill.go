package models

// Skill is a topic a user can list and a post can be tagged with
type Skill struct {
	ID   uint   `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	Name string `gorm:"type:varchar(128);not null;uniqueIndex:skills_name_ux;column:name" json:"name"`
}

// TableName specifies the table name for Skill
func (Skill) TableName() string {
	return "skills"
}
