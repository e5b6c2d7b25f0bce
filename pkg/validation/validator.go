package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-wayfinder/pkg/storage"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	MaxNameLength     = 64
	MaxLongNameLength = 256

	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	floorPattern      = regexp.MustCompile(`^[A-Za-z0-9]{1,8}$`)
	buildingPattern   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 _.-]{0,63}$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	mustRegister("identifier", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	})
	mustRegister("floor", func(fl validator.FieldLevel) bool {
		return floorPattern.MatchString(fl.Field().String())
	})
	mustRegister("building", func(fl validator.FieldLevel) bool {
		return buildingPattern.MatchString(fl.Field().String())
	})
	mustRegister("node_type", func(fl validator.FieldLevel) bool {
		_, ok := storage.ParseNodeType(fl.Field().String())
		return ok
	})
	mustRegister("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// NodeRequest holds the attributes of a node to create. ID is only accepted
// from floor-plan imports; interactive creation leaves it empty.
type NodeRequest struct {
	ID        string  `json:"id,omitempty" yaml:"id" validate:"omitempty,identifier"`
	ShortName string  `json:"short_name" yaml:"short_name" validate:"required,max=64"`
	LongName  string  `json:"long_name" yaml:"long_name" validate:"required,max=256"`
	Type      string  `json:"type" yaml:"type" validate:"required,node_type"`
	Floor     string  `json:"floor" yaml:"floor" validate:"required,floor"`
	Building  string  `json:"building" yaml:"building" validate:"required,building"`
	X         float64 `json:"x" yaml:"x" validate:"finite,gte=0"`
	Y         float64 `json:"y" yaml:"y" validate:"finite,gte=0"`
}

// NodePatch holds the attributes to change on an existing node. Nil fields are
// left alone. ID may be sent but must match the node being updated.
type NodePatch struct {
	ID        *string  `json:"id,omitempty" validate:"omitempty,identifier"`
	ShortName *string  `json:"short_name,omitempty" validate:"omitempty,min=1,max=64"`
	LongName  *string  `json:"long_name,omitempty" validate:"omitempty,min=1,max=256"`
	Type      *string  `json:"type,omitempty" validate:"omitempty,node_type"`
	Floor     *string  `json:"floor,omitempty" validate:"omitempty,floor"`
	Building  *string  `json:"building,omitempty" validate:"omitempty,building"`
	X         *float64 `json:"x,omitempty" validate:"omitempty,finite,gte=0"`
	Y         *float64 `json:"y,omitempty" validate:"omitempty,finite,gte=0"`
}

// Empty reports whether the patch changes nothing.
func (p *NodePatch) Empty() bool {
	return p.ShortName == nil && p.LongName == nil && p.Type == nil &&
		p.Floor == nil && p.Building == nil && p.X == nil && p.Y == nil
}

// EdgeRequest connects two nodes. A nil weight means the geometric distance.
type EdgeRequest struct {
	ID     string   `json:"id,omitempty" yaml:"id" validate:"omitempty,identifier"`
	NodeA  string   `json:"node_a" yaml:"node_a" validate:"required,identifier"`
	NodeB  string   `json:"node_b" yaml:"node_b" validate:"required,identifier"`
	Weight *float64 `json:"weight,omitempty" yaml:"weight" validate:"omitempty,finite,gte=0"`
}

// ValidateNodeRequest validates a node creation request
func ValidateNodeRequest(req *NodeRequest) error {
	if req == nil {
		return errors.New("node request cannot be nil")
	}
	return formatValidationError(validate.Struct(req))
}

// ValidateNodePatch validates a node update
func ValidateNodePatch(p *NodePatch) error {
	if p == nil {
		return errors.New("node patch cannot be nil")
	}
	return formatValidationError(validate.Struct(p))
}

// ValidateEdgeRequest validates an edge creation request. Self-loops are caught
// here as well as in the store.
func ValidateEdgeRequest(req *EdgeRequest) error {
	if req == nil {
		return errors.New("edge request cannot be nil")
	}
	if err := formatValidationError(validate.Struct(req)); err != nil {
		return err
	}
	if req.NodeA == req.NodeB {
		return fmt.Errorf("node_b: must differ from node_a (%s)", req.NodeA)
	}
	return nil
}

// ValidateIdentifier checks a node or edge ID taken from a URL or query.
func ValidateIdentifier(field, id string) error {
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("%s: %q is not a valid identifier", field, id)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Only the first violation is reported
	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s characters", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s characters", field, param)
		case "gte":
			return fmt.Errorf("%s: must be >= %s", field, param)
		case "finite":
			return fmt.Errorf("%s: must be a finite number", field)
		case "identifier":
			return fmt.Errorf("%s: %q is not a valid identifier", field, e.Value())
		case "floor":
			return fmt.Errorf("%s: %q is not a valid floor", field, e.Value())
		case "building":
			return fmt.Errorf("%s: %q is not a valid building", field, e.Value())
		case "node_type":
			return fmt.Errorf("%s: unknown node type %q", field, e.Value())
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
