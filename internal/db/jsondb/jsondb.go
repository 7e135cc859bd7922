// Package jsondb implements the storage contract on top of a single JSON
// file. The whole dataset is kept in memory and flushed to disk on Close.
package jsondb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/patric-chuzhbe/bookmarkr/internal/bookmark"
	"github.com/patric-chuzhbe/bookmarkr/internal/user"
)

// JSONDB is a file-backed implementation of the storage contract.
type JSONDB struct {
	fileName string
	mutex    sync.RWMutex
	Cache    CacheStruct
}

// CacheStruct is the serialized shape of the database file.
type CacheStruct struct {
	Users         map[string]*user.User
	EmailToUserID map[string]string
	Bookmarks     map[string]*bookmark.Bookmark

	// UserBookmarks keeps bookmark IDs per user in creation order.
	UserBookmarks map[string][]string
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Users": {},
	"EmailToUserID": {},
	"Bookmarks": {},
	"UserBookmarks": {}
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %s", err)
	}

	file, err2 := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err2 != nil {
		return fmt.Errorf("error opening file: %s", err2)
	}
	defer file.Close()

	_, err = file.Write(jsonData)
	if err != nil {
		return fmt.Errorf("error writing to file: %s", err)
	}

	return nil
}

func parseJSONFile(fileName string, cacheMap *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)

	return decoder.Decode(cacheMap)
}

// New opens (or initializes) the database file and loads it into memory.
func New(fileName string) (*JSONDB, error) {
	theJSONDB := JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(theJSONDB.fileName, &theJSONDB.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		err := initDBFile(fileName)
		if err != nil {
			return nil, err
		}
		err = parseJSONFile(theJSONDB.fileName, &theJSONDB.Cache)
		if err != nil {
			return nil, err
		}
	}

	theJSONDB.ensureCacheMaps()

	return &theJSONDB, nil
}

func (db *JSONDB) ensureCacheMaps() {
	if db.Cache.Users == nil {
		db.Cache.Users = map[string]*user.User{}
	}
	if db.Cache.EmailToUserID == nil {
		db.Cache.EmailToUserID = map[string]string{}
	}
	if db.Cache.Bookmarks == nil {
		db.Cache.Bookmarks = map[string]*bookmark.Bookmark{}
	}
	if db.Cache.UserBookmarks == nil {
		db.Cache.UserBookmarks = map[string][]string{}
	}
}

// Ping always succeeds for the file backend.
func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the in-memory cache to the database file.
func (db *JSONDB) Close() error {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}

// BeginTransaction is a no-op for the file backend.
func (db *JSONDB) BeginTransaction() (*sql.Tx, error) {
	return nil, nil
}

// CommitTransaction is a no-op for the file backend.
func (db *JSONDB) CommitTransaction(transaction *sql.Tx) error {
	return nil
}

// RollbackTransaction is a no-op for the file backend.
func (db *JSONDB) RollbackTransaction(transaction *sql.Tx) error {
	return nil
}

// CreateUser stores a new user and returns its ID.
func (db *JSONDB) CreateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) (string, error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	userCopy := *usr
	db.Cache.Users[usr.ID] = &userCopy
	db.Cache.EmailToUserID[usr.Email] = usr.ID

	return usr.ID, nil
}

// GetUserByID returns the user with the given ID, reporting whether it exists.
func (db *JSONDB) GetUserByID(
	ctx context.Context,
	userID string,
	transaction *sql.Tx,
) (*user.User, bool, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	usr, found := db.Cache.Users[userID]
	if !found {
		return nil, false, nil
	}
	userCopy := *usr

	return &userCopy, true, nil
}

// GetUserByEmail returns the user registered under the given email,
// reporting whether it exists.
func (db *JSONDB) GetUserByEmail(
	ctx context.Context,
	email string,
	transaction *sql.Tx,
) (*user.User, bool, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	userID, found := db.Cache.EmailToUserID[email]
	if !found {
		return nil, false, nil
	}
	usr, found := db.Cache.Users[userID]
	if !found {
		return nil, false, nil
	}
	userCopy := *usr

	return &userCopy, true, nil
}

// UpdateUser replaces the stored user record and keeps the email index consistent.
func (db *JSONDB) UpdateUser(ctx context.Context, usr *user.User, transaction *sql.Tx) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	previous, found := db.Cache.Users[usr.ID]
	if found && previous.Email != usr.Email {
		delete(db.Cache.EmailToUserID, previous.Email)
	}

	userCopy := *usr
	db.Cache.Users[usr.ID] = &userCopy
	db.Cache.EmailToUserID[usr.Email] = usr.ID

	return nil
}

// InsertBookmark stores a new bookmark and appends it to the owner's list.
func (db *JSONDB) InsertBookmark(
	ctx context.Context,
	bkm *bookmark.Bookmark,
	transaction *sql.Tx,
) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	bookmarkCopy := *bkm
	db.Cache.Bookmarks[bkm.ID] = &bookmarkCopy
	db.Cache.UserBookmarks[bkm.UserID] = append(db.Cache.UserBookmarks[bkm.UserID], bkm.ID)

	return nil
}

// GetUserBookmarks returns the non-deleted bookmarks of a user in creation order.
func (db *JSONDB) GetUserBookmarks(ctx context.Context, userID string) ([]*bookmark.Bookmark, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	result := []*bookmark.Bookmark{}
	for _, bookmarkID := range db.Cache.UserBookmarks[userID] {
		bkm, found := db.Cache.Bookmarks[bookmarkID]
		if !found || bkm.IsDeleted {
			continue
		}
		bookmarkCopy := *bkm
		result = append(result, &bookmarkCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// GetBookmarkByID returns the bookmark with the given ID if it belongs to the
// user and is not deleted, reporting whether it was found.
func (db *JSONDB) GetBookmarkByID(
	ctx context.Context,
	userID string,
	bookmarkID string,
) (*bookmark.Bookmark, bool, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	bkm, found := db.Cache.Bookmarks[bookmarkID]
	if !found || bkm.UserID != userID || bkm.IsDeleted {
		return nil, false, nil
	}
	bookmarkCopy := *bkm

	return &bookmarkCopy, true, nil
}

// UpdateBookmark replaces the stored bookmark record.
func (db *JSONDB) UpdateBookmark(
	ctx context.Context,
	bkm *bookmark.Bookmark,
	transaction *sql.Tx,
) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	bookmarkCopy := *bkm
	db.Cache.Bookmarks[bkm.ID] = &bookmarkCopy

	return nil
}

// MarkBookmarkDeleted soft-deletes the bookmark if it belongs to the user.
func (db *JSONDB) MarkBookmarkDeleted(ctx context.Context, userID, bookmarkID string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	bkm, found := db.Cache.Bookmarks[bookmarkID]
	if !found || bkm.UserID != userID {
		return nil
	}
	bkm.IsDeleted = true

	return nil
}

// PurgeDeletedBookmarks physically removes the listed bookmarks,
// provided they belong to the listed user and were soft-deleted before.
func (db *JSONDB) PurgeDeletedBookmarks(
	ctx context.Context,
	usersBookmarks map[string][]string,
) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for userID, bookmarkIDs := range usersBookmarks {
		for _, bookmarkID := range bookmarkIDs {
			bkm, found := db.Cache.Bookmarks[bookmarkID]
			if !found || bkm.UserID != userID || !bkm.IsDeleted {
				continue
			}
			delete(db.Cache.Bookmarks, bookmarkID)

			owned := db.Cache.UserBookmarks[userID]
			for i, ownedID := range owned {
				if ownedID == bookmarkID {
					db.Cache.UserBookmarks[userID] = append(owned[:i], owned[i+1:]...)
					break
				}
			}
		}
	}

	return nil
}

// GetNumberOfUsers returns the total amount of registered users.
func (db *JSONDB) GetNumberOfUsers(ctx context.Context) (int64, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	return int64(len(db.Cache.Users)), nil
}

// GetNumberOfBookmarks returns the total amount of non-deleted bookmarks.
func (db *JSONDB) GetNumberOfBookmarks(ctx context.Context) (int64, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	var count int64
	for _, bkm := range db.Cache.Bookmarks {
		if !bkm.IsDeleted {
			count++
		}
	}

	return count, nil
}
