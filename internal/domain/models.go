package domain

// Models 按依赖顺序列出所有表，供 AutoMigrate 使用
func Models() []any {
	return []any{
		&Departement{},
		&Poste{},
		&User{},
		&Personnel{},
		&Stagiaire{},
		&Manager{},
		&Equipe{},
		&Pointage{},
		&Pause{},
		&Notification{},
		&AuditLog{},
	}
}
