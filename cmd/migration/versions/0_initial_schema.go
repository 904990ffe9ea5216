package versions

import (
	"log"
	"pawhaven/shelter/schema"

	"gorm.io/gorm"
)

func Migration_0_initial_schema(txn *gorm.DB) error {
	log.Println("creating initial schema")

	if err := txn.Migrator().AutoMigrate(schema.AllEntities()...); err != nil {
		return err
	}

	log.Println("initial schema created")

	return nil
}

func Rollback_0_initial_schema(txn *gorm.DB) error {
	for _, entity := range schema.AllEntities() {
		if err := txn.Migrator().DropTable(entity); err != nil {
			return err
		}
	}
	return nil
}
