/*
 * Copyright 2026 The tll-go Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package convert

import (
	"github.com/tll-go/tll/scheme"
	"github.com/tll-go/tll/scheme/wire"
	"github.com/tll-go/tll/tllerr"
)

// armField builds the synthetic scheme.Field a UnionArm's payload would
// have if it were a standalone field at offset 0, so classifyWithSchemes
// and the routineFunc machinery can be reused unchanged for arm payloads.
func armField(a *scheme.UnionArm) scheme.Field {
	return scheme.Field{
		Kind:       a.Kind,
		Sub:        a.Sub,
		Size:       a.Size,
		MessageRef: a.MessageRef,
		EnumRef:    a.EnumRef,
	}
}

// classifyUnion matches arms by name (spec §4.4 "union arm translated
// by matching tag names"): for each source arm, the destination arm
// sharing its name is located and its payload classified; an
// into-union with no same-named arm leaves that source arm unmapped,
// which is a ConversionError raised only if that arm is actually
// encountered on conversion (the same "fail at use time, not at build
// time for every theoretically-possible value" policy as remapEnum).
func classifyUnion(fromS, intoS *scheme.Scheme, from, into *scheme.Field) (fieldPlan, error) {
	fromUnion := &fromS.Unions[from.UnionRef]
	intoUnion := &intoS.Unions[into.UnionRef]

	armPlans := make([]*fieldPlan, len(fromUnion.Arms))
	intoTags := make([]int64, len(fromUnion.Arms))

	for i, fa := range fromUnion.Arms {
		var matched *scheme.UnionArm
		for j := range intoUnion.Arms {
			if intoUnion.Arms[j].Name == fa.Name {
				matched = &intoUnion.Arms[j]
				break
			}
		}
		if matched == nil {
			continue
		}
		ff := armField(&fa)
		tf := armField(matched)
		efp, err := classifyWithSchemes(fromS, intoS, &ff, &tf)
		if err != nil {
			return fieldPlan{}, tllerr.WithField(fa.Name, err)
		}
		efp.name = fa.Name
		armPlans[i] = &efp
		intoTags[i] = matched.Tag
	}

	return fieldPlan{
		from:            from,
		into:            into,
		class:           unionClass,
		unionArmPlans:   armPlans,
		unionArmIntoTag: intoTags,
	}, nil
}

// convertUnion reads the source union's tag, finds the precomputed arm
// plan for it, writes the matching destination tag, and converts the
// arm payload (which starts right after each union's own tag scalar).
func convertUnion(fromS, intoS *scheme.Scheme, fromRec, intoRec *wire.Record, fromBase, intoBase int, fp *fieldPlan) error {
	fromUnion := &fromS.Unions[fp.from.UnionRef]
	fromOff := fieldOffset(fromBase, fp.from)
	intoOff := fieldOffset(intoBase, fp.into)

	tag := wire.UnionTag(fromRec.Bytes()[fromOff:], fromUnion.TagSize)

	armIdx := -1
	for i, a := range fromUnion.Arms {
		if a.Tag == int64(tag) {
			armIdx = i
			break
		}
	}
	if armIdx < 0 {
		return tllerr.New(tllerr.ConversionError, "source union tag has no matching arm")
	}
	armPlan := fp.unionArmPlans[armIdx]
	if armPlan == nil {
		return tllerr.New(tllerr.ConversionError, "destination union has no arm named "+fromUnion.Arms[armIdx].Name)
	}

	wire.PutUnionTag(intoRec.Bytes()[intoOff:], intoS.Unions[fp.into.UnionRef].TagSize, uint32(fp.unionArmIntoTag[armIdx]))

	fromPayload := fromOff + fromUnion.TagSize
	intoPayload := intoOff + intoS.Unions[fp.into.UnionRef].TagSize
	return applyFieldPlan(armPlan, fromS, intoS, fromRec, intoRec, fromPayload, intoPayload)
}
