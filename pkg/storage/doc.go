// Package storage provides persistent storage for the shareadmin server:
// users, folders, device-bound sessions, and a generic settings table.
// Two backends are available behind the Store interface, SQLite (default)
// and MySQL, selected through the database configuration.
package storage
