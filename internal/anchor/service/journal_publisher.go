package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/medledger/tokenledger/internal/anchor/domain"
	apperrors "github.com/medledger/tokenledger/internal/errors"
)

const (
	journalEntryPrefix = "entry/"
	journalPDFPrefix   = "pdf/"
	journalHeadKey     = "head"
)

// JournalEntry is one link of the journal hash chain.
type JournalEntry struct {
	Sequence   uint64          `json:"sequence"`
	PrevHash   string          `json:"prev_hash"`
	Payload    json.RawMessage `json:"payload"`
	RecordedAt time.Time       `json:"recorded_at"`
	Hash       string          `json:"hash"`
}

type journalHead struct {
	Sequence uint64 `json:"sequence"`
	Hash     string `json:"hash"`
}

// JournalReport is the outcome of a successful journal verification.
type JournalReport struct {
	Entries  uint64 `json:"entries"`
	HeadHash string `json:"head_hash"`
}

// JournalPublisher appends anchors to a local goleveldb hash chain. Each entry commits to
// its predecessor, so rewriting any entry breaks every later link.
type JournalPublisher struct {
	mu  sync.Mutex
	db  *leveldb.DB
	now func() time.Time
}

// OpenJournalPublisher opens or creates the journal stored at path.
func OpenJournalPublisher(path string) (*JournalPublisher, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open anchor journal")
	}
	return &JournalPublisher{db: db, now: time.Now}, nil
}

// NewJournalPublisher opens a journal on an arbitrary goleveldb storage.
func NewJournalPublisher(stor storage.Storage) (*JournalPublisher, error) {
	db, err := leveldb.Open(stor, nil)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open anchor journal")
	}
	return &JournalPublisher{db: db, now: time.Now}, nil
}

// Name returns "journal".
func (j *JournalPublisher) Name() string {
	return JournalPublisherName
}

// Publish appends the anchor unless its pdf hash is already journaled, in which case the
// existing entry's receipt is returned.
func (j *JournalPublisher) Publish(ctx context.Context, anchor domain.Anchor) (domain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return domain.Receipt{}, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	pdfKey := []byte(journalPDFPrefix + anchor.PDFHash.String())

	seqBytes, err := j.db.Get(pdfKey, nil)
	switch {
	case err == nil:
		seq, err := strconv.ParseUint(string(seqBytes), 10, 64)
		if err != nil {
			return domain.Receipt{}, fmt.Errorf("%w: bad index for %s", domain.ErrJournalCorrupted, anchor.PDFHash)
		}
		entry, err := j.entry(seq)
		if err != nil {
			return domain.Receipt{}, err
		}
		return journalReceipt(anchor, entry), nil
	case !errors.Is(err, leveldb.ErrNotFound):
		return domain.Receipt{}, apperrors.Wrap(err, "failed to read anchor journal index")
	}

	head, err := j.head()
	if err != nil {
		return domain.Receipt{}, err
	}

	payload, err := json.Marshal(anchor)
	if err != nil {
		return domain.Receipt{}, apperrors.Wrap(err, "failed to encode anchor")
	}

	entry := &JournalEntry{
		Sequence:   head.Sequence + 1,
		PrevHash:   head.Hash,
		Payload:    payload,
		RecordedAt: j.now().UTC(),
	}
	entry.Hash, err = entryHash(entry)
	if err != nil {
		return domain.Receipt{}, err
	}

	entryData, err := json.Marshal(entry)
	if err != nil {
		return domain.Receipt{}, apperrors.Wrap(err, "failed to encode journal entry")
	}
	headData, err := json.Marshal(journalHead{Sequence: entry.Sequence, Hash: entry.Hash})
	if err != nil {
		return domain.Receipt{}, apperrors.Wrap(err, "failed to encode journal head")
	}

	batch := new(leveldb.Batch)
	batch.Put(entryKey(entry.Sequence), entryData)
	batch.Put([]byte(journalHeadKey), headData)
	batch.Put(pdfKey, []byte(strconv.FormatUint(entry.Sequence, 10)))

	if err := j.db.Write(batch, &opt.WriteOptions{Sync: true}); err != nil {
		return domain.Receipt{}, apperrors.Wrap(err, "failed to append anchor journal entry")
	}

	return journalReceipt(anchor, entry), nil
}

// Verify walks the chain from the first entry and checks sequence numbers, links,
// entry hashes and the head pointer.
func (j *JournalPublisher) Verify(ctx context.Context) (JournalReport, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	iter := j.db.NewIterator(util.BytesPrefix([]byte(journalEntryPrefix)), nil)
	defer iter.Release()

	var report JournalReport
	prevHash := ""
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return JournalReport{}, err
		}

		var entry JournalEntry
		if err := json.Unmarshal(iter.Value(), &entry); err != nil {
			return JournalReport{}, fmt.Errorf("%w: undecodable entry %s", domain.ErrJournalCorrupted, iter.Key())
		}

		expectedSeq := report.Entries + 1
		if entry.Sequence != expectedSeq || !bytes.Equal(iter.Key(), entryKey(expectedSeq)) {
			return JournalReport{}, fmt.Errorf("%w: expected entry %d, found %s",
				domain.ErrJournalCorrupted, expectedSeq, iter.Key())
		}
		if entry.PrevHash != prevHash {
			return JournalReport{}, fmt.Errorf("%w: entry %d does not link to its predecessor",
				domain.ErrJournalCorrupted, entry.Sequence)
		}

		hash, err := entryHash(&entry)
		if err != nil {
			return JournalReport{}, err
		}
		if hash != entry.Hash {
			return JournalReport{}, fmt.Errorf("%w: entry %d hash mismatch", domain.ErrJournalCorrupted, entry.Sequence)
		}

		report.Entries = entry.Sequence
		prevHash = entry.Hash
	}
	if err := iter.Error(); err != nil {
		return JournalReport{}, apperrors.Wrap(err, "failed to iterate anchor journal")
	}

	head, err := j.head()
	if err != nil {
		return JournalReport{}, err
	}
	if head.Sequence != report.Entries || head.Hash != prevHash {
		return JournalReport{}, fmt.Errorf("%w: head does not match last entry", domain.ErrJournalCorrupted)
	}

	report.HeadHash = prevHash
	return report, nil
}

// Close closes the underlying database.
func (j *JournalPublisher) Close() error {
	return j.db.Close()
}

func (j *JournalPublisher) head() (journalHead, error) {
	var head journalHead

	data, err := j.db.Get([]byte(journalHeadKey), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return head, nil
	}
	if err != nil {
		return head, apperrors.Wrap(err, "failed to read anchor journal head")
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return head, fmt.Errorf("%w: undecodable head", domain.ErrJournalCorrupted)
	}
	return head, nil
}

func (j *JournalPublisher) entry(seq uint64) (*JournalEntry, error) {
	data, err := j.db.Get(entryKey(seq), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: missing entry %d", domain.ErrJournalCorrupted, seq)
	}

	var entry JournalEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: undecodable entry %d", domain.ErrJournalCorrupted, seq)
	}
	return &entry, nil
}

func entryKey(seq uint64) []byte {
	return fmt.Appendf(nil, "%s%020d", journalEntryPrefix, seq)
}

// entryHash is SHA-256 over sequence, previous hash, payload and record time, each
// length-prefixed.
func entryHash(entry *JournalEntry) (string, error) {
	prev, err := hex.DecodeString(entry.PrevHash)
	if err != nil {
		return "", fmt.Errorf("%w: entry %d has a malformed link", domain.ErrJournalCorrupted, entry.Sequence)
	}

	h := sha256.New()
	var buf [8]byte

	binary.BigEndian.PutUint64(buf[:], entry.Sequence)
	h.Write(buf[:])

	for _, part := range [][]byte{prev, entry.Payload} {
		binary.BigEndian.PutUint64(buf[:], uint64(len(part)))
		h.Write(buf[:])
		h.Write(part)
	}

	binary.BigEndian.PutUint64(buf[:], uint64(entry.RecordedAt.UnixNano()))
	h.Write(buf[:])

	return hex.EncodeToString(h.Sum(nil)), nil
}

func journalReceipt(anchor domain.Anchor, entry *JournalEntry) domain.Receipt {
	return domain.Receipt{
		PDFHash:    anchor.PDFHash,
		Publisher:  JournalPublisherName,
		Reference:  strconv.FormatUint(entry.Sequence, 10),
		AnchoredAt: entry.RecordedAt,
	}
}
