// internal/domain/treasure/paths.go
package treasure

import "hanami/internal/domain/docstore"

// Collection names (store schema).
const (
	UsersCollection     = "Users"
	TreasuresCollection = "Treasures"
	GlobalCollection    = "AllTreasures"
	ContentsCollection  = "Contents"
)

// UserPath: Users/{uid}
func UserPath(uid string) string {
	return docstore.Join(UsersCollection, uid)
}

// OwnerCollection: Users/{uid}/Treasures
func OwnerCollection(uid string) string {
	return docstore.Join(UsersCollection, uid, TreasuresCollection)
}

// OwnerPath: Users/{uid}/Treasures/{tid}
func OwnerPath(uid, tid string) string {
	return docstore.Join(OwnerCollection(uid), tid)
}

// GlobalPath: AllTreasures/{tid}
func GlobalPath(tid string) string {
	return docstore.Join(GlobalCollection, tid)
}

// ContentsOf: {treasurePath}/Contents
func ContentsOf(treasurePath string) string {
	return docstore.Join(treasurePath, ContentsCollection)
}

// ContentPath: {treasurePath}/Contents/{cid}
func ContentPath(treasurePath, cid string) string {
	return docstore.Join(treasurePath, ContentsCollection, cid)
}

// Partitions returns both parent paths of a treasure (owner first).
func Partitions(uid, tid string) []string {
	return []string{OwnerPath(uid, tid), GlobalPath(tid)}
}
