// Package types defines the Store, Tx and Table interfaces, the photo library
// entities (photos, albums, tags, layouts, settings), query criteria, reports
// and the error taxonomy shared by every shoebox package.
//
// Entities are plain structs. Relations between photos and albums, and between
// photos and tags, are held by the store in a single relation table each;
// Photo.AlbumIDs and Album.PhotoIDs are hydrated from it on read and ignored on
// write.
package types
