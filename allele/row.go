// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package allele

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
)

func init() {
	recordiozstd.Init()
}

// Serialized Summary format:
//   [0..4): refName length n
//   [4..4+n): refName
//   then 8 bytes position, 4+4+4 bytes of counts, and the reference base.
// Simplest format that handles variable-length contig names; the "zstd 1"
// transformer takes care of the redundancy across rows.

// MarshalSummary is a recordio marshal function for *Summary.
func MarshalSummary(scratch []byte, v interface{}) ([]byte, error) {
	s := v.(*Summary)
	if len(s.RefBase) != 1 {
		return nil, fmt.Errorf("allele.MarshalSummary: ref base %q must be a single base", s.RefBase)
	}
	n := len(s.RefName)
	bytesReq := 4 + n + 8 + 12 + 1
	t := scratch
	if len(t) < bytesReq {
		t = make([]byte, bytesReq)
	}
	t = t[:bytesReq]

	binary.LittleEndian.PutUint32(t[0:4], uint32(n))
	copy(t[4:4+n], s.RefName)
	rest := t[4+n:]
	binary.LittleEndian.PutUint64(rest[0:8], uint64(s.Pos))
	binary.LittleEndian.PutUint32(rest[8:12], uint32(s.RefSupportingReadCount))
	binary.LittleEndian.PutUint32(rest[12:16], uint32(s.TotalReadCount))
	binary.LittleEndian.PutUint32(rest[16:20], uint32(s.RefNonconfidentReadCount))
	rest[20] = s.RefBase[0]
	return t, nil
}

// UnmarshalSummary is the recordio unmarshal counterpart of MarshalSummary.
func UnmarshalSummary(in []byte) (out interface{}, err error) {
	if len(in) < 4 {
		return nil, fmt.Errorf("allele.UnmarshalSummary: truncated record")
	}
	n := int(binary.LittleEndian.Uint32(in[0:4]))
	if len(in) != 4+n+21 {
		return nil, fmt.Errorf("allele.UnmarshalSummary: unexpected record length %d", len(in))
	}
	s := &Summary{RefName: string(in[4 : 4+n])}
	rest := in[4+n:]
	s.Pos = int64(binary.LittleEndian.Uint64(rest[0:8]))
	s.RefSupportingReadCount = int(binary.LittleEndian.Uint32(rest[8:12]))
	s.TotalReadCount = int(binary.LittleEndian.Uint32(rest[12:16]))
	s.RefNonconfidentReadCount = int(binary.LittleEndian.Uint32(rest[16:20]))
	s.RefBase = string(rest[20:21])
	return s, nil
}

// WriteSummariesRio writes the given summaries to out using recordio.
func WriteSummariesRio(summaries []Summary, out io.Writer) error {
	w := recordio.NewWriter(out, recordio.WriterOpts{
		Marshal:      MarshalSummary,
		Transformers: []string{recordiozstd.Name},
	})
	for i := range summaries {
		w.Append(&summaries[i])
	}
	return w.Finish()
}

// ReadSummariesRio reads back summaries written by WriteSummariesRio.
func ReadSummariesRio(in io.ReadSeeker) ([]Summary, error) {
	scanner := recordio.NewScanner(in, recordio.ScannerOpts{
		Unmarshal: UnmarshalSummary,
	})
	var out []Summary
	for scanner.Scan() {
		out = append(out, *scanner.Get().(*Summary))
	}
	return out, scanner.Err()
}
