package jsonschema

import (
	"fmt"
	"math/big"
	"strconv"
	"unicode/utf8"
)

// scope is one frame of the dynamic scope: the chain of schema resources
// entered so far during a validation call. It is threaded through the
// evaluation as an explicit parameter, never shared state.
type scope struct {
	res    *Schema
	parent *scope
}

// lookupDynamic finds the outermost resource in the chain declaring the
// dynamic anchor, per the override-by-caller semantics of dynamic
// references.
func (sc *scope) lookupDynamic(s *Schemas, name Anchor) *Schema {
	var found *Schema
	for fr := sc; fr != nil; fr = fr.parent {
		if idx, ok := fr.res.DynamicAnchors[name]; ok {
			found = s.list[idx]
		}
	}
	return found
}

// Validate evaluates the compiled node at idx against v. A nil return means
// the instance is valid; otherwise the error is a *ValidationError tree.
// Schemas is read-only here, so concurrent Validate calls are safe once
// compilation is done.
func (s *Schemas) Validate(v any, idx SchemaIndex) error {
	maxDepth := s.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if err := s.validate(v, s.list[idx], nil, "", 0, maxDepth); err != nil {
		return err
	}
	return nil
}

func isFatal(err *ValidationError) bool {
	return err != nil && err.Code == CodeMaxDepthExceeded
}

func (s *Schemas) validate(v any, sch *Schema, sc *scope, vloc JSONPointer, depth, maxDepth int) *ValidationError {
	fail := func(code, format string, args ...any) *ValidationError {
		return &ValidationError{
			SchemaURL:        sch.Loc.String(),
			InstanceLocation: vloc,
			Code:             code,
			Message:          fmt.Sprintf(format, args...),
		}
	}
	if depth >= maxDepth {
		return fail(CodeMaxDepthExceeded, "validation exceeded depth limit %d", maxDepth)
	}
	depth++

	res := s.list[sch.Resource]
	if sc == nil || sc.res != res {
		sc = &scope{res: res, parent: sc}
	}

	if sch.Always != nil {
		if !*sch.Always {
			return fail(CodeSchemaFalse, "schema is always false")
		}
		return nil
	}

	var causes []*ValidationError
	addCause := func(err *ValidationError) {
		if err != nil {
			causes = append(causes, err)
		}
	}

	if sch.Ref != nil {
		if err := s.validate(v, s.list[*sch.Ref], sc, vloc, depth, maxDepth); err != nil {
			if isFatal(err) {
				return err
			}
			addCause(err)
		}
	}
	if sch.DynamicRef != nil {
		target := s.list[*sch.DynamicRef]
		if sch.DynamicRefAnchor != nil {
			if dyn := sc.lookupDynamic(s, *sch.DynamicRefAnchor); dyn != nil {
				target = dyn
			}
		}
		if err := s.validate(v, target, sc, vloc, depth, maxDepth); err != nil {
			if isFatal(err) {
				return err
			}
			addCause(err)
		}
	}

	if len(sch.Types) > 0 {
		t := typeOf(v)
		matched := false
		for _, want := range sch.Types {
			if want == t || (want == "integer" && t == "number" && isIntegral(v)) {
				matched = true
				break
			}
		}
		if !matched {
			addCause(fail(CodeInvalidType, "got %s, want %v", t, sch.Types))
		}
	}
	if len(sch.Enum) > 0 {
		matched := false
		for _, item := range sch.Enum {
			if equals(v, item) {
				matched = true
				break
			}
		}
		if !matched {
			addCause(fail(CodeInvalidEnum, "value not in enum"))
		}
	}
	if sch.Const != nil && !equals(v, sch.Const[0]) {
		addCause(fail(CodeInvalidConst, "value does not equal const"))
	}

	if num, ok := numOf(v); ok {
		if sch.MultipleOf != nil {
			if q := new(big.Rat).Quo(num, sch.MultipleOf); !q.IsInt() {
				addCause(fail(CodeMultipleOf, "not a multiple of %s", sch.MultipleOf.RatString()))
			}
		}
		if sch.Maximum != nil && num.Cmp(sch.Maximum) > 0 {
			addCause(fail(CodeTooBig, "exceeds maximum %s", sch.Maximum.RatString()))
		}
		if sch.ExclusiveMaximum != nil && num.Cmp(sch.ExclusiveMaximum) >= 0 {
			addCause(fail(CodeTooBig, "not below exclusive maximum %s", sch.ExclusiveMaximum.RatString()))
		}
		if sch.Minimum != nil && num.Cmp(sch.Minimum) < 0 {
			addCause(fail(CodeTooSmall, "below minimum %s", sch.Minimum.RatString()))
		}
		if sch.ExclusiveMinimum != nil && num.Cmp(sch.ExclusiveMinimum) <= 0 {
			addCause(fail(CodeTooSmall, "not above exclusive minimum %s", sch.ExclusiveMinimum.RatString()))
		}
	}

	if str, ok := v.(string); ok {
		if sch.MaxLength != nil || sch.MinLength != nil {
			n := utf8.RuneCountInString(str)
			if sch.MaxLength != nil && n > *sch.MaxLength {
				addCause(fail(CodeTooLong, "length %d exceeds maxLength %d", n, *sch.MaxLength))
			}
			if sch.MinLength != nil && n < *sch.MinLength {
				addCause(fail(CodeTooShort, "length %d below minLength %d", n, *sch.MinLength))
			}
		}
		if sch.Pattern != nil && !sch.Pattern.MatchString(str) {
			addCause(fail(CodePattern, "does not match pattern %q", sch.Pattern.String()))
		}
		if sch.decodeContent != nil || sch.checkMediaType != nil {
			data := []byte(str)
			ok := true
			if sch.decodeContent != nil {
				decoded, err := sch.decodeContent(str)
				if err != nil {
					addCause(fail(CodeInvalidContent, "not valid %s", sch.ContentEncoding))
					ok = false
				} else {
					data = decoded
				}
			}
			if ok && sch.checkMediaType != nil {
				if err := sch.checkMediaType(data); err != nil {
					addCause(fail(CodeInvalidContent, "not valid %s", sch.ContentMediaType))
				}
			}
		}
	}
	if sch.assertFormat != nil {
		if !sch.assertFormat(v) {
			addCause(fail(CodeInvalidFormat, "not a valid %s", sch.Format))
		}
	}

	if arr, ok := v.([]any); ok {
		if err := s.validateArray(arr, sch, sc, vloc, depth, maxDepth, fail, addCause); err != nil {
			return err
		}
	}
	if obj, ok := v.(map[string]any); ok {
		if err := s.validateObject(obj, sch, sc, vloc, depth, maxDepth, fail, addCause); err != nil {
			return err
		}
	}

	for _, idx := range sch.AllOf {
		if err := s.validate(v, s.list[idx], sc, vloc, depth, maxDepth); err != nil {
			if isFatal(err) {
				return err
			}
			addCause(&ValidationError{
				SchemaURL:        sch.Loc.String(),
				InstanceLocation: vloc,
				Code:             CodeAllOf,
				Message:          "allOf schema failed",
				Causes:           []*ValidationError{err},
			})
		}
	}
	if len(sch.AnyOf) > 0 {
		matched := false
		var branchErrs []*ValidationError
		for _, idx := range sch.AnyOf {
			err := s.validate(v, s.list[idx], sc, vloc, depth, maxDepth)
			if err == nil {
				matched = true
				break
			}
			if isFatal(err) {
				return err
			}
			branchErrs = append(branchErrs, err)
		}
		if !matched {
			addCause(&ValidationError{
				SchemaURL:        sch.Loc.String(),
				InstanceLocation: vloc,
				Code:             CodeAnyOf,
				Message:          "no anyOf schema matched",
				Causes:           branchErrs,
			})
		}
	}
	if len(sch.OneOf) > 0 {
		matched := 0
		var branchErrs []*ValidationError
		for _, idx := range sch.OneOf {
			err := s.validate(v, s.list[idx], sc, vloc, depth, maxDepth)
			if err == nil {
				matched++
				continue
			}
			if isFatal(err) {
				return err
			}
			branchErrs = append(branchErrs, err)
		}
		switch {
		case matched == 0:
			addCause(&ValidationError{
				SchemaURL:        sch.Loc.String(),
				InstanceLocation: vloc,
				Code:             CodeOneOf,
				Message:          "no oneOf schema matched",
				Causes:           branchErrs,
			})
		case matched > 1:
			addCause(fail(CodeOneOf, "%d oneOf schemas matched, want exactly one", matched))
		}
	}
	if sch.Not != nil {
		err := s.validate(v, s.list[*sch.Not], sc, vloc, depth, maxDepth)
		if isFatal(err) {
			return err
		}
		if err == nil {
			addCause(fail(CodeNot, "matches schema it must not match"))
		}
	}
	if sch.If != nil {
		err := s.validate(v, s.list[*sch.If], sc, vloc, depth, maxDepth)
		if isFatal(err) {
			return err
		}
		var branch *SchemaIndex
		if err == nil {
			branch = sch.Then
		} else {
			branch = sch.Else
		}
		if branch != nil {
			if berr := s.validate(v, s.list[*branch], sc, vloc, depth, maxDepth); berr != nil {
				if isFatal(berr) {
					return berr
				}
				addCause(&ValidationError{
					SchemaURL:        sch.Loc.String(),
					InstanceLocation: vloc,
					Code:             CodeCondition,
					Message:          "conditional schema failed",
					Causes:           []*ValidationError{berr},
				})
			}
		}
	}

	switch len(causes) {
	case 0:
		return nil
	case 1:
		return causes[0]
	default:
		return &ValidationError{
			SchemaURL:        sch.Loc.String(),
			InstanceLocation: vloc,
			Code:             CodeInvalid,
			Message:          fmt.Sprintf("%d assertions failed", len(causes)),
			Causes:           causes,
		}
	}
}

func (s *Schemas) validateArray(arr []any, sch *Schema, sc *scope, vloc JSONPointer, depth, maxDepth int, fail func(string, string, ...any) *ValidationError, addCause func(*ValidationError)) *ValidationError {
	if sch.MaxItems != nil && len(arr) > *sch.MaxItems {
		addCause(fail(CodeTooManyItems, "%d items exceed maxItems %d", len(arr), *sch.MaxItems))
	}
	if sch.MinItems != nil && len(arr) < *sch.MinItems {
		addCause(fail(CodeTooFewItems, "%d items below minItems %d", len(arr), *sch.MinItems))
	}
	if sch.UniqueItems {
	outer:
		for i := 1; i < len(arr); i++ {
			for j := 0; j < i; j++ {
				if equals(arr[i], arr[j]) {
					addCause(fail(CodeNotUnique, "items %d and %d are equal", j, i))
					break outer
				}
			}
		}
	}

	tuple := len(sch.TupleItems)
	for i, item := range arr {
		var sub *SchemaIndex
		switch {
		case i < tuple:
			sub = &sch.TupleItems[i]
		case sch.Items != nil:
			sub = sch.Items
		case sch.AdditionalItems != nil:
			sub = sch.AdditionalItems
		case tuple > 0 && sch.AdditionalItemsBool != nil && !*sch.AdditionalItemsBool:
			addCause(fail(CodeTooManyItems, "no additional items allowed beyond %d", tuple))
			continue
		default:
			continue
		}
		if err := s.validate(item, s.list[*sub], sc, vloc.Append(strconv.Itoa(i)), depth, maxDepth); err != nil {
			if isFatal(err) {
				return err
			}
			addCause(err)
		}
	}

	if sch.Contains != nil {
		matched := 0
		for _, item := range arr {
			err := s.validate(item, s.list[*sch.Contains], sc, vloc, depth, maxDepth)
			if isFatal(err) {
				return err
			}
			if err == nil {
				matched++
			}
		}
		min := 1
		if sch.MinContains != nil {
			min = *sch.MinContains
		}
		if matched < min {
			addCause(fail(CodeContains, "%d items match contains, want at least %d", matched, min))
		}
		if sch.MaxContains != nil && matched > *sch.MaxContains {
			addCause(fail(CodeContains, "%d items match contains, want at most %d", matched, *sch.MaxContains))
		}
	}
	return nil
}

func (s *Schemas) validateObject(obj map[string]any, sch *Schema, sc *scope, vloc JSONPointer, depth, maxDepth int, fail func(string, string, ...any) *ValidationError, addCause func(*ValidationError)) *ValidationError {
	if sch.MaxProperties != nil && len(obj) > *sch.MaxProperties {
		addCause(fail(CodeTooManyProps, "%d properties exceed maxProperties %d", len(obj), *sch.MaxProperties))
	}
	if sch.MinProperties != nil && len(obj) < *sch.MinProperties {
		addCause(fail(CodeTooFewProps, "%d properties below minProperties %d", len(obj), *sch.MinProperties))
	}
	for _, name := range sch.Required {
		if _, ok := obj[name]; !ok {
			addCause(fail(CodeRequired, "missing required property %q", name))
		}
	}

	for key, val := range obj {
		keyLoc := vloc.Append(key)
		evaluated := false
		if idx, ok := sch.Properties[key]; ok {
			evaluated = true
			if err := s.validate(val, s.list[idx], sc, keyLoc, depth, maxDepth); err != nil {
				if isFatal(err) {
					return err
				}
				addCause(err)
			}
		}
		for _, ps := range sch.PatternProperties {
			if !ps.Regexp.MatchString(key) {
				continue
			}
			evaluated = true
			if err := s.validate(val, s.list[ps.Schema], sc, keyLoc, depth, maxDepth); err != nil {
				if isFatal(err) {
					return err
				}
				addCause(err)
			}
		}
		if !evaluated {
			if sch.AdditionalPropertiesBool != nil && !*sch.AdditionalPropertiesBool {
				addCause(fail(CodeUnknownKey, "additional property %q not allowed", key))
			} else if sch.AdditionalProperties != nil {
				if err := s.validate(val, s.list[*sch.AdditionalProperties], sc, keyLoc, depth, maxDepth); err != nil {
					if isFatal(err) {
						return err
					}
					addCause(err)
				}
			}
		}
		if sch.PropertyNames != nil {
			if err := s.validate(key, s.list[*sch.PropertyNames], sc, keyLoc, depth, maxDepth); err != nil {
				if isFatal(err) {
					return err
				}
				addCause(&ValidationError{
					SchemaURL:        sch.Loc.String(),
					InstanceLocation: keyLoc,
					Code:             CodePropertyName,
					Message:          fmt.Sprintf("property name %q invalid", key),
					Causes:           []*ValidationError{err},
				})
			}
		}
	}

	for name, required := range sch.DependentRequired {
		if _, ok := obj[name]; !ok {
			continue
		}
		for _, dep := range required {
			if _, ok := obj[dep]; !ok {
				addCause(fail(CodeDependency, "property %q requires %q", name, dep))
			}
		}
	}
	for name, idx := range sch.DependentSchemas {
		if _, ok := obj[name]; !ok {
			continue
		}
		if err := s.validate(map[string]any(obj), s.list[idx], sc, vloc, depth, maxDepth); err != nil {
			if isFatal(err) {
				return err
			}
			addCause(&ValidationError{
				SchemaURL:        sch.Loc.String(),
				InstanceLocation: vloc,
				Code:             CodeDependency,
				Message:          fmt.Sprintf("dependency of %q failed", name),
				Causes:           []*ValidationError{err},
			})
		}
	}
	return nil
}
