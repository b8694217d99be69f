// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package dataset

import (
	"fmt"
	"os"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

const (
	// parquetParallelism is the number of goroutines parquet-go uses for
	// column encoding and decoding.
	parquetParallelism = 4

	// readBatchSize bounds the rows decoded per Read call.
	readBatchSize = 10000
)

// Storage rows. Every column is OPTIONAL so files produced by other
// Parquet writers (pyarrow marks all columns nullable) can be read. Optional
// groups must be pointers: parquet-go only counts a definition level for a
// pointer, so mods is *[]*parquetMod to get the mods/list/element levels
// pyarrow writes.

type parquetMod struct {
	ChangeType *string `parquet:"name=change_type, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	OldPath    *string `parquet:"name=old_path, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	NewPath    *string `parquet:"name=new_path, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Diff       *string `parquet:"name=diff, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

type parquetRawCommit struct {
	Author          *int64         `parquet:"name=author, type=INT64, repetitiontype=OPTIONAL"`
	Date            *string        `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Timezone        *int64         `parquet:"name=timezone, type=INT64, repetitiontype=OPTIONAL"`
	Hash            *string        `parquet:"name=hash, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Message         *string        `parquet:"name=message, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Mods            *[]*parquetMod `parquet:"name=mods, type=LIST, repetitiontype=OPTIONAL"`
	Language        *string        `parquet:"name=language, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	License         *string        `parquet:"name=license, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Repo            *string        `parquet:"name=repo, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	OriginalMessage *string        `parquet:"name=original_message, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

type parquetCommit struct {
	Author          *int64         `parquet:"name=author, type=INT64, repetitiontype=OPTIONAL"`
	Date            *string        `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Timezone        *int64         `parquet:"name=timezone, type=INT64, repetitiontype=OPTIONAL"`
	Hash            *string        `parquet:"name=hash, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Message         *string        `parquet:"name=message, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Mods            *[]*parquetMod `parquet:"name=mods, type=LIST, repetitiontype=OPTIONAL"`
	Language        *string        `parquet:"name=language, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	License         *string        `parquet:"name=license, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Repo            *string        `parquet:"name=repo, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	OriginalMessage *string        `parquet:"name=original_message, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	IsCCS           *int32         `parquet:"name=is_CCS, type=INT32, repetitiontype=OPTIONAL"`
	CommitType      *string        `parquet:"name=commit_type, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	CommitScope     *string        `parquet:"name=commit_scope, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
}

// ReadRawParquet reads an upstream commit-chronicle Parquet file.
func ReadRawParquet(path string) ([]RawCommit, error) {
	rows, err := readParquetRows[parquetRawCommit](path)
	if err != nil {
		return nil, err
	}
	out := make([]RawCommit, len(rows))
	for i := range rows {
		out[i] = rows[i].toRaw()
	}
	return out, nil
}

// ReadParquet reads a pipeline Parquet file.
func ReadParquet(path string) ([]Commit, error) {
	rows, err := readParquetRows[parquetCommit](path)
	if err != nil {
		return nil, err
	}
	out := make([]Commit, len(rows))
	for i := range rows {
		out[i] = rows[i].toCommit()
	}
	return out, nil
}

// HasParquetColumn reports whether the file schema contains a top-level
// column with the given name.
func HasParquetColumn(path, column string) (bool, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return false, fmt.Errorf("open parquet %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 1)
	if err != nil {
		return false, fmt.Errorf("read parquet footer %s: %w", path, err)
	}
	defer pr.ReadStop()

	// The reader renames footer elements to Go identifiers; the external
	// path map keeps the names as written.
	sh := pr.SchemaHandler
	_, ok := sh.ExPathToInPath[common.PathToStr([]string{sh.GetRootExName(), column})]
	return ok, nil
}

func readParquetRows[T any](path string) ([]T, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(T), parquetParallelism)
	if err != nil {
		return nil, fmt.Errorf("read parquet footer %s: %w", path, err)
	}
	defer pr.ReadStop()

	total := int(pr.GetNumRows())
	rows := make([]T, 0, total)
	for len(rows) < total {
		n := min(readBatchSize, total-len(rows))
		batch := make([]T, n)
		if err := pr.Read(&batch); err != nil {
			return nil, fmt.Errorf("read parquet rows %s: %w", path, err)
		}
		rows = append(rows, batch...)
	}
	return rows, nil
}

// WriteParquet writes commits to path atomically, Snappy compressed.
func WriteParquet(path string, commits []Commit) error {
	return writeAtomic(path, func(tmp string) error {
		fw, err := local.NewLocalFileWriter(tmp)
		if err != nil {
			return fmt.Errorf("create parquet %s: %w", tmp, err)
		}

		pw, err := writer.NewParquetWriter(fw, new(parquetCommit), parquetParallelism)
		if err != nil {
			_ = fw.Close()
			return fmt.Errorf("init parquet writer: %w", err)
		}
		pw.CompressionType = parquet.CompressionCodec_SNAPPY

		for i := range commits {
			if err := pw.Write(fromCommit(&commits[i])); err != nil {
				_ = pw.WriteStop()
				_ = fw.Close()
				return fmt.Errorf("write parquet row %d: %w", i, err)
			}
		}
		if err := pw.WriteStop(); err != nil {
			_ = fw.Close()
			return fmt.Errorf("finalize parquet: %w", err)
		}
		if err := fw.Close(); err != nil {
			return fmt.Errorf("close parquet: %w", err)
		}
		return nil
	})
}

func (r *parquetRawCommit) toRaw() RawCommit {
	return RawCommit{
		Author:          derefInt(r.Author),
		Date:            Deref(r.Date),
		Timezone:        derefInt(r.Timezone),
		Hash:            Deref(r.Hash),
		Message:         Deref(r.Message),
		Mods:            toMods(r.Mods),
		Language:        Deref(r.Language),
		License:         Deref(r.License),
		Repo:            Deref(r.Repo),
		OriginalMessage: Deref(r.OriginalMessage),
	}
}

func (r *parquetCommit) toCommit() Commit {
	return Commit{
		Author:          derefInt(r.Author),
		Date:            Deref(r.Date),
		Timezone:        derefInt(r.Timezone),
		Hash:            Deref(r.Hash),
		Message:         Deref(r.Message),
		Mods:            toMods(r.Mods),
		Language:        Deref(r.Language),
		License:         Deref(r.License),
		Repo:            Deref(r.Repo),
		OriginalMessage: Deref(r.OriginalMessage),
		IsCCS:           r.IsCCS,
		CommitType:      r.CommitType,
		CommitScope:     r.CommitScope,
	}
}

func fromCommit(c *Commit) parquetCommit {
	return parquetCommit{
		Author:          &c.Author,
		Date:            StringPtr(c.Date),
		Timezone:        &c.Timezone,
		Hash:            StringPtr(c.Hash),
		Message:         StringPtr(c.Message),
		Mods:            fromMods(c.Mods),
		Language:        StringPtr(c.Language),
		License:         StringPtr(c.License),
		Repo:            StringPtr(c.Repo),
		OriginalMessage: StringPtr(c.OriginalMessage),
		IsCCS:           c.IsCCS,
		CommitType:      c.CommitType,
		CommitScope:     c.CommitScope,
	}
}

func toMods(in *[]*parquetMod) []Mod {
	if in == nil || len(*in) == 0 {
		return nil
	}
	out := make([]Mod, len(*in))
	for i, m := range *in {
		if m == nil {
			continue
		}
		out[i] = Mod{
			ChangeType: Deref(m.ChangeType),
			OldPath:    Deref(m.OldPath),
			NewPath:    Deref(m.NewPath),
			Diff:       Deref(m.Diff),
		}
	}
	return out
}

func fromMods(in []Mod) *[]*parquetMod {
	if in == nil {
		return nil
	}
	out := make([]*parquetMod, len(in))
	for i, m := range in {
		out[i] = &parquetMod{
			ChangeType: StringPtr(m.ChangeType),
			OldPath:    StringPtr(m.OldPath),
			NewPath:    StringPtr(m.NewPath),
			Diff:       StringPtr(m.Diff),
		}
	}
	return &out
}

func derefInt(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// writeAtomic runs write against "<path>.tmp" and renames the result into
// place. The temp file is removed on failure.
func writeAtomic(path string, write func(tmp string) error) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := write(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
