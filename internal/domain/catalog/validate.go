package catalog

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/grafixr/site/internal/domain/model"
)

// Field names used in validation errors.
const (
	FieldTitle         = "title"
	FieldMainCategory  = "mainCategory"
	FieldSubCategory   = "subCategory"
	FieldSubCategories = "subCategories"
	FieldMediaType     = "mediaType"
	FieldFiles         = "files"
	FieldName          = "name"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldProjectType   = "projectType"
	FieldBudget        = "budget"
	FieldDeadline      = "deadline"
	FieldRequirements  = "requirements"
)

// Messages shown to users.
const (
	MsgTitleRequired       = "Title is required"
	MsgMainRequired        = "Main category is required"
	MsgSubRequired         = "Enter at least one subcategory"
	MsgFilesRequired       = "Please select at least one file."
	MsgOneVideo            = "Only one video file allowed"
	MsgMediaType           = "Media type must be image or video"
	MsgUnknownCategory     = "Unknown category"
	MsgUnknownSubCategory  = "Unknown subcategory"
	MsgSubCategoryRequired = "Subcategory is required"
)

const (
	dateLayout         = "2006-01-02"
	maxTitleLen        = 200
	maxNameLen         = 200
	maxShortFieldLen   = 100
	maxRequirementsLen = 5000
)

// FileMeta describes one uploaded file for validation.
type FileMeta struct {
	Name        string
	ContentType string
	Size        int64
}

// ValidateItem checks an upload against the known categories and returns the
// normalized draft and media type. The first failed rule is reported.
func ValidateItem(d model.ItemDraft, categories []model.Category, files []FileMeta) (model.ItemDraft, model.MediaType, error) {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.MainCategory = strings.TrimSpace(d.MainCategory)
	d.SubCategory = strings.TrimSpace(d.SubCategory)

	if d.Title == "" {
		return d, "", invalid(FieldTitle, MsgTitleRequired)
	}
	if utf8.RuneCountInString(d.Title) > maxTitleLen {
		return d, "", invalid(FieldTitle, fmt.Sprintf("Title must be at most %d characters", maxTitleLen))
	}
	if d.MainCategory == "" {
		return d, "", invalid(FieldMainCategory, MsgMainRequired)
	}
	cat, ok := FindCategory(categories, d.MainCategory)
	if !ok {
		return d, "", invalid(FieldMainCategory, MsgUnknownCategory)
	}
	d.MainCategory = cat.MainCategory
	if len(cat.SubCategories) > 0 {
		if d.SubCategory == "" {
			return d, "", invalid(FieldSubCategory, MsgSubCategoryRequired)
		}
		idx := indexOf(cat.SubCategories, d.SubCategory)
		if idx < 0 {
			return d, "", invalid(FieldSubCategory, MsgUnknownSubCategory)
		}
		d.SubCategory = cat.SubCategories[idx]
	}

	mt, ok := model.ParseMediaType(d.MediaType)
	if !ok {
		return d, "", invalid(FieldMediaType, MsgMediaType)
	}
	d.MediaType = string(mt)

	if len(files) == 0 {
		return d, mt, invalid(FieldFiles, MsgFilesRequired)
	}
	if mt == model.MediaVideo && len(files) > 1 {
		return d, mt, invalid(FieldFiles, MsgOneVideo)
	}
	for _, f := range files {
		if !mt.MatchesContentType(f.ContentType) {
			return d, mt, invalid(FieldFiles, fmt.Sprintf("%s is not a %s file", f.Name, mt))
		}
	}
	return d, mt, nil
}

// ValidateCategory normalizes a main category name and its subcategories.
// At least one subcategory must survive normalization.
func ValidateCategory(main string, subs []string) (string, []string, error) {
	main = strings.TrimSpace(main)
	if main == "" {
		return "", nil, invalid(FieldMainCategory, MsgMainRequired)
	}
	subs, err := ValidateSubCategories(subs)
	if err != nil {
		return "", nil, err
	}
	return main, subs, nil
}

// ValidateSubCategories normalizes subcategory tags for an update.
func ValidateSubCategories(subs []string) ([]string, error) {
	subs = NormalizeTags(subs)
	if len(subs) == 0 {
		return nil, invalid(FieldSubCategories, MsgSubRequired)
	}
	return subs, nil
}

// ValidateInquiry checks a contact form submission and returns the
// normalized inquiry without ID or timestamp. Every failing field is reported.
func ValidateInquiry(d model.InquiryDraft) (model.Inquiry, error) {
	in := model.Inquiry{
		Name:         strings.TrimSpace(d.Name),
		Email:        strings.TrimSpace(d.Email),
		Phone:        strings.TrimSpace(d.Phone),
		ProjectType:  model.ProjectType(strings.TrimSpace(d.ProjectType)),
		Budget:       strings.TrimSpace(d.Budget),
		Deadline:     strings.TrimSpace(d.Deadline),
		Requirements: strings.TrimSpace(d.Requirements),
	}
	verr := &ValidationError{}

	switch {
	case in.Name == "":
		verr.add(FieldName, "Name is required")
	case utf8.RuneCountInString(in.Name) > maxNameLen:
		verr.add(FieldName, fmt.Sprintf("Name must be at most %d characters", maxNameLen))
	}

	if in.Email == "" {
		verr.add(FieldEmail, "Email is required")
	} else if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		verr.add(FieldEmail, "Enter a valid email address")
	}

	if utf8.RuneCountInString(in.Phone) > maxShortFieldLen {
		verr.add(FieldPhone, "Phone number is too long")
	}

	known := false
	for _, p := range model.ProjectTypes {
		if in.ProjectType == p {
			known = true
		}
	}
	if !known {
		verr.add(FieldProjectType, "Select a project type")
	}

	if utf8.RuneCountInString(in.Budget) > maxShortFieldLen {
		verr.add(FieldBudget, "Budget is too long")
	}

	if in.Deadline != "" {
		if _, err := time.Parse(dateLayout, in.Deadline); err != nil {
			verr.add(FieldDeadline, "Deadline must be a date (YYYY-MM-DD)")
		}
	}

	switch {
	case in.Requirements == "":
		verr.add(FieldRequirements, "Tell us about your project")
	case utf8.RuneCountInString(in.Requirements) > maxRequirementsLen:
		verr.add(FieldRequirements, fmt.Sprintf("Requirements must be at most %d characters", maxRequirementsLen))
	}

	if err := verr.orNil(); err != nil {
		return model.Inquiry{}, err
	}
	return in, nil
}
