package requests

import (
	"fmt"

	"gorm.io/gorm"

	"hydrogen/hydrogend/config"
	"hydrogen/hydrogend/store"
)

type singleton struct {
	reqDB *gorm.DB
}

var instance *singleton

var dbInitialized bool

// DBReconfig makes the next access reopen the database, after the path changed.
func DBReconfig() {
	dbInitialized = false
}

func getReqDB() *gorm.DB {
	if !dbInitialized {
		gormDB, err := store.Open(config.Config.DB.Path, "requests")
		if err != nil {
			panic(err)
		}

		instance = &singleton{reqDB: gormDB}
		dbInitialized = true
	}

	return instance.reqDB
}

func DBAutoMigrate() {
	err := getReqDB().AutoMigrate(&Request{})
	if err != nil {
		panic(fmt.Errorf("error migrating requests table: %w", err))
	}
}
