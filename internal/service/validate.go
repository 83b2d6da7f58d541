package service

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"gin-user-service/internal/domain"
	"gin-user-service/pkg/optional"
)

const MaxEmailLength = 191

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// 各字段规则；每条规则单独执行，才能把所有失败信息按顺序收集
var (
	emailFormat = validation.Match(emailRe).Error("Invalid email format")
	// users.email 列宽 191
	emailMax    = validation.RuneLength(0, MaxEmailLength).Error("Email must be at most 191 characters long")
	nameMin     = validation.RuneLength(2, 0).Error("Name must be at least 2 characters long")
	nameMax     = validation.RuneLength(0, 100).Error("Name must be less than 100 characters")
	passwordMin = validation.RuneLength(6, 0).Error("Password must be at least 6 characters long")
	// bcrypt 只认前 72 字节
	passwordMax = validation.Length(0, 72).Error("Password must be at most 72 bytes long")
	ageMin      = validation.Min(0).Error("Age must be a non-negative integer")
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Age      *int   `json:"age"`
	Password string `json:"password"`
}

// CreateInput 直接建用户，密码可选
type CreateInput struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Age      *int    `json:"age"`
	Password *string `json:"password"`
}

// UpdateInput 只处理请求体里出现的字段
type UpdateInput struct {
	Name  optional.Optional[string] `json:"name"`
	Email optional.Optional[string] `json:"email"`
	Age   optional.Optional[int]    `json:"age"`
}

func (in UpdateInput) Empty() bool {
	return !in.Name.Set && !in.Email.Set && !in.Age.Set
}

// collector 依次执行规则，保留失败信息
type collector struct{ msgs []string }

func (c *collector) check(value any, rules ...validation.Rule) {
	for _, r := range rules {
		if err := validation.Validate(value, r); err != nil {
			c.msgs = append(c.msgs, err.Error())
		}
	}
}

func (c *collector) add(msg string) { c.msgs = append(c.msgs, msg) }

func (c *collector) err() error {
	if len(c.msgs) == 0 {
		return nil
	}
	return domain.Validation(c.msgs...)
}

func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func normalizeName(s string) string { return strings.TrimSpace(s) }

type fields struct {
	name, email string
	age         *int
	password    *string
	needPwd     bool
}

// validateFields 顺序：必填 → 邮箱格式 → 名称长度 → 密码 → 年龄
func validateFields(f fields) error {
	var c collector
	if f.name == "" {
		c.add("name is required")
	}
	if f.email == "" {
		c.add("email is required")
	}
	if f.needPwd && (f.password == nil || *f.password == "") {
		c.add("password is required")
	}

	c.check(f.email, emailFormat, emailMax)
	c.check(f.name, nameMin, nameMax)
	if f.password != nil && *f.password != "" {
		c.check(*f.password, passwordMin, passwordMax)
	}
	if f.age != nil {
		c.check(*f.age, ageMin)
	}
	return c.err()
}

func ValidateRegistration(in RegisterInput) (RegisterInput, error) {
	in.Name = normalizeName(in.Name)
	in.Email = NormalizeEmail(in.Email)
	err := validateFields(fields{
		name: in.Name, email: in.Email, age: in.Age,
		password: &in.Password, needPwd: true,
	})
	return in, err
}

func ValidateCreate(in CreateInput) (CreateInput, error) {
	in.Name = normalizeName(in.Name)
	in.Email = NormalizeEmail(in.Email)
	if in.Password != nil && *in.Password == "" {
		in.Password = nil
	}
	err := validateFields(fields{
		name: in.Name, email: in.Email, age: in.Age,
		password: in.Password,
	})
	return in, err
}

// ValidateUpdate 出现为 null 的字段直接报错；不支持置空
func ValidateUpdate(in UpdateInput) (UpdateInput, error) {
	var c collector
	for _, f := range []struct {
		name string
		null bool
	}{
		{"name", in.Name.Set && in.Name.Null},
		{"email", in.Email.Set && in.Email.Null},
		{"age", in.Age.Set && in.Age.Null},
	} {
		if f.null {
			c.add(f.name + " cannot be null")
		}
	}

	if in.Name.Present() {
		in.Name.Value = normalizeName(in.Name.Value)
		if in.Name.Value == "" {
			c.add("name cannot be empty")
		}
	}
	if in.Email.Present() {
		in.Email.Value = NormalizeEmail(in.Email.Value)
		if in.Email.Value == "" {
			c.add("email cannot be empty")
		}
		c.check(in.Email.Value, emailFormat, emailMax)
	}
	if in.Name.Present() {
		c.check(in.Name.Value, nameMin, nameMax)
	}
	if in.Age.Present() {
		c.check(in.Age.Value, ageMin)
	}
	return in, c.err()
}
