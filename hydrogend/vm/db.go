package vm

import (
	"fmt"

	"gorm.io/gorm"

	"hydrogen/hydrogend/config"
	"hydrogen/hydrogend/store"
)

type singleton struct {
	vmDB *gorm.DB
}

var instance *singleton

var dbInitialized bool

// DBReconfig makes the next access reopen the database, after the path changed.
func DBReconfig() {
	dbInitialized = false
}

func getVMDB() *gorm.DB {
	if !dbInitialized {
		gormDB, err := store.Open(config.Config.DB.Path, "vms")
		if err != nil {
			panic(err)
		}

		instance = &singleton{vmDB: gormDB}
		dbInitialized = true
	}

	return instance.vmDB
}

func DBAutoMigrate() {
	err := getVMDB().AutoMigrate(&VM{})
	if err != nil {
		panic(fmt.Errorf("error migrating vms table: %w", err))
	}
}

// GetAllDB reads every VM straight from the database.
func GetAllDB() ([]VM, error) {
	var result []VM

	db := getVMDB()

	res := db.Find(&result)
	if res.Error != nil {
		return nil, errVMInternalDB
	}

	return result, nil
}
