package store

import "strings"

const (
	RelExit         = "exit"
	RelHasScript    = "has_script"
	RelContains     = "contains"
	RelRepop        = "repop"
	RelHasInventory = "has_inventory"
	RelHasEquipment = "has_equipment"
	RelProduces     = "produces"
	RelRequiresPart = "requires_part"
	RelShopKeeper   = "shop_keeper"
	RelShopRoom     = "shop_room"
	RelSpawnsIn     = "spawns_in"
	RelLoadsIn      = "loads_in"
	RelEquipsOn     = "equips_on"
	RelCarriedBy    = "carried_by"
	RelContainedIn  = "contained_in"
	RelDoor         = "door"
	RelZoneLoad     = "zone_load"

	refPrefix = "ref:"
)

var relations = map[string]struct{}{
	RelExit: {}, RelHasScript: {}, RelContains: {}, RelRepop: {}, RelHasInventory: {},
	RelHasEquipment: {}, RelProduces: {}, RelRequiresPart: {}, RelShopKeeper: {},
	RelShopRoom: {}, RelSpawnsIn: {}, RelLoadsIn: {}, RelEquipsOn: {}, RelCarriedBy: {},
	RelContainedIn: {}, RelDoor: {}, RelZoneLoad: {},
}

// RefRelation names the advisory edge emitted for a deep-reference key.
func RefRelation(key string) string {
	return refPrefix + key
}

func IsRefRelation(rel string) bool {
	return strings.HasPrefix(rel, refPrefix)
}

func IsKnownRelation(rel string) bool {
	if IsRefRelation(rel) {
		return len(rel) > len(refPrefix)
	}
	_, ok := relations[rel]
	return ok
}
